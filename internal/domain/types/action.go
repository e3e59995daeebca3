package types

const (
	ActionRabbitMQConnected       = "rabbitmq_connected"
	ActionRabbitConnectionClosed  = "rabbitmq_connection_closed"
	ActionRabbitConnectionClosing = "rabbitmq_connection_closing"
	ActionRabbitReconnected       = "rabbitmq_reconnection_success"

	ActionDatabaseTransactionFailed = "database_transaction_failed"
	ActionEventPublishFailed        = "event_publish_failed"

	ActionDispatchRound   = "dispatch_round"
	ActionDispatchCancel  = "dispatch_cancel"
	ActionDispatchExhaust = "dispatch_exhaust"

	ActionPresenceIngest = "presence_ingest"
)
