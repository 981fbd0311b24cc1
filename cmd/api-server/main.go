package main

import (
	"flag"

	"github.com/IkNhayatk/RoutinInspection-backend/internal/app"
)

func main() {
	cfgPath := flag.String("config", "", "配置文件路径（默认 config/config.yaml，可用 ROUTININSPECTION_CONFIG 覆盖）")
	flag.Parse()

	application, err := app.Initialize(*cfgPath)
	if err != nil {
		panic(err)
	}

	app.StartServer(application.Config, application.Handlers, application.Services)
}
