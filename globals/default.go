package globals

import "github.com/hashicorp/go-hclog"

var AppLogger = hclog.New(&hclog.LoggerOptions{
	Name:  "wavelink-relay",
	Level: hclog.LevelFromString("INFO"),
})
