package telegram

//go:generate go run go.uber.org/mock/mockgen -source=telegram.go -destination=mocks/mock.go

// Client delivers operator notifications.
type Client interface {
	SendMessageToUser(message string) error
}
