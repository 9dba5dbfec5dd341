package models

import (
	"encoding/json"
	"time"
)

// AdminLog запись аудита привилегированного действия. После создания
// никогда не изменяется.
type AdminLog struct {
	ID        string // uuid
	ActorUID  string // Администратор, выполнивший действие
	Action    string // Например consultation.schedule, ratelimit.flush
	Category  string // consultations, ratelimits, payments...
	Target    string // Идентификатор объекта действия, опционально
	Detail    json.RawMessage
	CreatedAt time.Time
}
