package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/audioapi/internal/flagx"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It is an intermediate DTO used only for reading JSON
// configuration files; after unmarshalling, set fields are copied into the
// runtime Config struct.
type JsonConfig struct {
	EndpointAddr       *string `json:"endpoint_addr"`
	Environment        *string `json:"environment"`
	APIVersion         *string `json:"api_version"`
	MetadataBackend    *string `json:"metadata_backend"`
	DatabaseDSN        *string `json:"database_dsn"`
	AWSRegion          *string `json:"aws_region"`
	AWSAccessKeyID     *string `json:"aws_access_key_id"`
	AWSSecretAccessKey *string `json:"aws_secret_access_key"`
	AWSEndpoint        *string `json:"aws_endpoint"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The JSON file path comes from the -c or -config command-line flags; when
// neither is set, no JSON file is loaded. Keys absent from the file leave
// the current value in place. If the file cannot be read or contains
// invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	overlay := func(target *string, value *string) {
		if value != nil {
			*target = *value
		}
	}

	overlay(&config.EndpointAddr, c.EndpointAddr)
	overlay(&config.Environment, c.Environment)
	overlay(&config.APIVersion, c.APIVersion)
	overlay(&config.MetadataBackend, c.MetadataBackend)
	overlay(&config.DatabaseDSN, c.DatabaseDSN)
	overlay(&config.AWSRegion, c.AWSRegion)
	overlay(&config.AWSAccessKeyID, c.AWSAccessKeyID)
	overlay(&config.AWSSecretAccessKey, c.AWSSecretAccessKey)
	overlay(&config.AWSEndpoint, c.AWSEndpoint)
}
