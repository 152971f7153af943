package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/audioapi/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-n string   environment name ("development" or "production")
//	-m string   metadata backend ("dynamodb" or "postgres")
//	-d string   PostgreSQL DSN
//	-g string   AWS region
//	-u string   AWS access key id
//	-p string   AWS secret access key
//	-e string   AWS endpoint override (e.g., "http://localhost:4566")
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-n", "-m", "-d", "-g", "-u", "-p", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.Environment, "n", config.Environment, "environment name")
	fs.StringVar(&config.MetadataBackend, "m", config.MetadataBackend, "metadata backend")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AWSRegion, "g", config.AWSRegion, "AWS region")
	fs.StringVar(&config.AWSAccessKeyID, "u", config.AWSAccessKeyID, "AWS access key id")
	fs.StringVar(&config.AWSSecretAccessKey, "p", config.AWSSecretAccessKey, "AWS secret access key")
	fs.StringVar(&config.AWSEndpoint, "e", config.AWSEndpoint, "AWS endpoint override")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
