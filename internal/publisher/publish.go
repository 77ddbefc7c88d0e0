package publisher

import "lobd/internal/book"

// PublishNotification routes a single OnBatch notification to the hub
// under the appropriate type tag.
func PublishNotification(hub *Hub, n book.Notification) {
	switch v := n.(type) {
	case *book.NBBOImprovement:
		hub.Publish("nbbo_improvement", v)
	case *book.Execution:
		hub.Publish("execution", v)
	}
}
