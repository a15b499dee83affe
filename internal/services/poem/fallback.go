package poem

// fallbackPoem is served when the provider errors out, times out, or
// returns a payload with no recoverable text. It reads as a poem, not
// an error page, so the UI never shows a hard failure for ordinary
// provider flakiness.
const fallbackPoem = "The clock ticks on, a steady, rhythmic chime,\n" +
	"But the muse of code is lost in space and time.\n" +
	"It tried to write a verse for you, it's true,\n" +
	"But the server sprites had other things to do."
