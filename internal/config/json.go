// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// parseJSON loads a StructuredConfig from the JSON file at jsonFilePath.
// The file shares field names with the struct's json tags; absent fields
// stay zero and are filled by later sources in the merge chain.
func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	jsonCfg := &StructuredConfig{}
	if err := json.NewDecoder(jsonFile).Decode(jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	return jsonCfg, nil
}
