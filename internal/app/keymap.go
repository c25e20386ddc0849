package app

// Key binding constants used in handleKey.
const (
	KeyQuit      = "q"
	KeyQuitUpper = "Q"
	KeyCtrlC     = "ctrl+c"
	KeyEsc       = "esc"
	KeySpace     = " "
	KeyTab       = "tab"
	KeyShiftTab  = "shift+tab"
	KeyUp        = "up"
	KeyDown      = "down"
	KeyLeft      = "left"
	KeyRight     = "right"
	KeyJ         = "j"
	KeyK         = "k"
	KeyEnter     = "enter"
	KeyNew       = "n"
	KeyDelete    = "d"
	KeyReset     = "r"
	KeyTheme     = "t"
	KeySnooze    = "s"
	KeyStop      = "x"
	KeyBackspace = "backspace"
)
