// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "PerchView")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "perchview.log")

	viper.SetDefault("perch.modelpath", "model/perch_v1.tflite")
	viper.SetDefault("perch.labelpath", "")
	viper.SetDefault("perch.minconfidence", 0.1)
	viper.SetDefault("perch.overlap", 0.0)
	viper.SetDefault("perch.latitude", 0.000)
	viper.SetDefault("perch.longitude", 0.000)
	viper.SetDefault("perch.threads", 0)
	viper.SetDefault("perch.rangefilter.enabled", false)
	viper.SetDefault("perch.rangefilter.threshold", 0.01)

	viper.SetDefault("input.path", "")
	viper.SetDefault("input.recursive", false)

	viper.SetDefault("output.file.enabled", true)
	viper.SetDefault("output.file.path", "")
	viper.SetDefault("output.file.type", "csv")
	viper.SetDefault("output.sqlite.enabled", false)
	viper.SetDefault("output.sqlite.path", "perchview.db")

	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.path", "cache/")

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.debug", false)

	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.topic", "perchview")
	viper.SetDefault("mqtt.username", "")
	viper.SetDefault("mqtt.password", "")
	viper.SetDefault("mqtt.retain", false)
}
