// SPDX-License-Identifier: Apache-2.0

package config

import "flag"

// ParseFlags parses all configuration flags into a sparse StructuredConfig.
// Only flags the operator actually passed end up set, so the flag config
// wins over every other source in the merge chain.
//
// Flags:
//
//	-a server address in format [host]:[port]
//	-sock unix socket path (takes precedence over -a when set)
//	-secret-path secret URL path segment
//	-log-level textual zerolog level
//	-c/-config json file path with configs
func ParseFlags() *StructuredConfig {
	var serverAddress string
	var socketPath string
	var secretPath string
	var logLevel string
	var jsonConfigPath string

	flag.StringVar(&serverAddress, "a", "", "Net address host:port")
	flag.StringVar(&socketPath, "sock", "", "Unix socket path")
	flag.StringVar(&secretPath, "secret-path", "", "Secret URL path segment")
	flag.StringVar(&logLevel, "log-level", "", "Log level")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")

	flag.Parse()

	return &StructuredConfig{
		App: App{
			SecretPath: secretPath,
			LogLevel:   logLevel,
		},
		Server: Server{
			Address:    serverAddress,
			SocketPath: socketPath,
		},
		JSONFilePath: jsonConfigPath,
	}
}
