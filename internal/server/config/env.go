package config

import "os"

// parseEnv overlays Config fields from environment variables. Unset
// variables leave the current value in place. The AWS variables follow the
// names the AWS tooling already uses, so credentials configured for the CLI
// apply here unchanged.
func parseEnv(config *Config) {
	setIfPresent := func(target *string, name string) {
		if v, ok := os.LookupEnv(name); ok {
			*target = v
		}
	}

	setIfPresent(&config.EndpointAddr, "ADDRESS")
	setIfPresent(&config.Environment, "ENVIRONMENT")
	setIfPresent(&config.APIVersion, "API_VERSION")
	setIfPresent(&config.MetadataBackend, "METADATA_BACKEND")
	setIfPresent(&config.DatabaseDSN, "DATABASE_DSN")
	setIfPresent(&config.AWSRegion, "AWS_DEFAULT_REGION")
	setIfPresent(&config.AWSAccessKeyID, "AWS_ACCESS_KEY_ID")
	setIfPresent(&config.AWSSecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	setIfPresent(&config.AWSEndpoint, "AWS_ENDPOINT_URL")
}
