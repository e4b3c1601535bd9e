package infra

import "fmt"

const (
	// RedisNamespace базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "erpflow"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanPolicyUpdate — широковещательный сигнал «политики изменились».
	// Все инстансы движка, подписанные на канал, перечитают кэш политик.
	RedisChanPolicyUpdate = RedisNamespace + ":policies:update"

	// RedisChanDecisions — трансляция принятых решений для внешних
	// подписчиков (дашборды, интеграции).
	RedisChanDecisions = RedisNamespace + ":approvals:decisions"

	// RedisChanOpsAlerts — канал ops-предупреждений (ConfigurationGap:
	// на шаге нет ни одного активного согласующего).
	RedisChanOpsAlerts = RedisNamespace + ":ops:alerts"
)

// GetDocumentChannel — канал событий конкретного документа (если подписчику
// нужен точечный стрим, а не общий).
func GetDocumentChannel(docType, docID string) string {
	return fmt.Sprintf("%s:approvals:%s:%s", RedisNamespace, docType, docID)
}
