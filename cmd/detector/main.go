package main

import (
	"go.uber.org/fx"

	"yolo-bot/internal/container"
)

func main() {
	fx.New(
		container.DetectorModule,
		container.WithLogger(),
	).Run()
}
