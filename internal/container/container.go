package container

import (
	app "heartbeat/internal/application"
	"heartbeat/internal/domain/port"
)

type Container struct {
	SubscriberService *app.SubscriberService
	ResultService     *app.ResultService
}

func New(subRepo port.SubscriberRepository, resultRepo port.ResultRepository) *Container {
	return &Container{
		SubscriberService: app.NewSubscriberService(subRepo),
		ResultService:     app.NewResultService(resultRepo),
	}
}
