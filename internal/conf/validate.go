// conf/validate.go

package conf

import (
	"fmt"
	"strconv"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validatePerchSettings(&settings.Perch); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateWebServerSettings(&settings.WebServer); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateMQTTSettings(&settings.MQTT); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validatePerchSettings(perch *PerchSettings) error {
	if perch.MinConfidence < 0 || perch.MinConfidence > 1 {
		return fmt.Errorf("perch.minconfidence must be between 0 and 1, got %f", perch.MinConfidence)
	}

	if perch.Overlap < 0 || perch.Overlap >= float64(ChunkLength) {
		return fmt.Errorf("perch.overlap must be between 0 and %d seconds, got %f", ChunkLength, perch.Overlap)
	}

	if perch.Latitude < -90 || perch.Latitude > 90 {
		return fmt.Errorf("perch.latitude must be between -90 and 90, got %f", perch.Latitude)
	}

	if perch.Longitude < -180 || perch.Longitude > 180 {
		return fmt.Errorf("perch.longitude must be between -180 and 180, got %f", perch.Longitude)
	}

	if perch.Threads < 0 {
		return fmt.Errorf("perch.threads must be zero or positive, got %d", perch.Threads)
	}

	if perch.RangeFilter.Enabled {
		if perch.RangeFilter.Threshold < 0 || perch.RangeFilter.Threshold > 1 {
			return fmt.Errorf("perch.rangefilter.threshold must be between 0 and 1, got %f", perch.RangeFilter.Threshold)
		}
		if perch.Latitude == 0 && perch.Longitude == 0 {
			return fmt.Errorf("perch.rangefilter requires latitude and longitude to be set")
		}
	}

	return nil
}

func validateWebServerSettings(ws *WebServerSettings) error {
	if !ws.Enabled {
		return nil
	}
	port, err := strconv.Atoi(ws.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("webserver.port must be a valid port number, got %q", ws.Port)
	}
	return nil
}

func validateMQTTSettings(mqtt *MQTTSettings) error {
	if !mqtt.Enabled {
		return nil
	}
	if mqtt.Broker == "" {
		return fmt.Errorf("mqtt.broker must be set when MQTT is enabled")
	}
	if mqtt.Topic == "" {
		return fmt.Errorf("mqtt.topic must be set when MQTT is enabled")
	}
	return nil
}
