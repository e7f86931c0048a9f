package dialogue

import "math/rand"

// waitingPhrases cover the silence while an extraction call is in flight.
var waitingPhrases = []string{
	"One moment please.",
	"Let me check that for you.",
	"Just a second.",
	"Give me a moment.",
	"Let me get that sorted.",
	"Hold on one second.",
	"Alright, one moment.",
	"Let me take care of that.",
	"Just checking the menu.",
	"Bear with me a moment.",
}

// repeatRequests ask the customer to try again after silence.
var repeatRequests = []string{
	"Sorry, I didn't catch that. Could you say it again?",
	"I didn't hear anything. Could you repeat that?",
	"Could you say that one more time?",
	"Sorry, could you repeat that?",
	"I missed that. One more time, please?",
	"Pardon? Could you say that again?",
}

func RandomWaitingPhrase() string {
	return waitingPhrases[rand.Intn(len(waitingPhrases))]
}

func RandomRepeatRequest() string {
	return repeatRequests[rand.Intn(len(repeatRequests))]
}
