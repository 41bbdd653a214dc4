package rabbitmq

// Обменники, которые объявляет SetupChannel.
const (
	NotificationsExchange = "notifications"
	EventsExchange        = "gym.events"
)

// UpcomingRoutingKey — ключ маршрутизации напоминаний об окончании абонемента.
const UpcomingRoutingKey = "upcoming"

// UpcomingQueue — очередь напоминаний, которую читает sender.
const UpcomingQueue = "notification.upcoming"

// QueueConfig описывает очередь и ключ, с которым она привязана к обменнику notifications.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди воркеров уведомлений.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: UpcomingQueue, RoutingKey: UpcomingRoutingKey},
	}
}
