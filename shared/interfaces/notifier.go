package interfaces

// ClientNotifier delivers updates to connected clients over the websocket
// hub. Implementations must not block the caller: delivery is best-effort
// fan-out.
//
//go:generate mockery --name ClientNotifier --output ./mocks --outpkg mocks --case=underscore
type ClientNotifier interface {
	// Broadcast публикует сообщение всем подписчикам топика.
	Broadcast(topic string, messageType string, payload any)
}
