package app

// Key binding constants used in handleKey.
const (
	KeyQuit        = "q"
	KeyQuitUpper   = "Q"
	KeyCtrlC       = "ctrl+c"
	KeyTab         = "tab"
	KeyEnter       = "enter"
	KeyEsc         = "esc"
	KeyUp          = "up"
	KeyDown        = "down"
	KeyVoiceToggle = "ctrl+v"
	KeySpeakToggle = "ctrl+s"
	KeyRefresh     = "ctrl+r"
)
