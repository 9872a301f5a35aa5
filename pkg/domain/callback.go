package domain

const (
	StartChatCallbackPrefix  = "char:"
	SelectChatCallbackPrefix = "chat:"
)
