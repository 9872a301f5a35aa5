package domain

type Response struct {
	ChatID   int64
	Text     string
	Image    *RemoteImage
	Keyboard *Keyboard
	Typing   bool
	Err      error
}

type RemoteImage struct {
	URL     string
	Caption string
}

type Keyboard struct {
	Title         string
	Buttons       []KeyboardButton
	ButtonsPerRow int
}

type KeyboardButton struct {
	Label string
	Data  string
}
