/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"strings"

	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver"
	"github.com/pkg/errors"
)

// Opts are the options shared by the drivers backed by a data source
type Opts struct {
	DataSource   string
	MaxOpenConns int
	SkipPragmas  bool
	InMemory     bool
}

// GetOpts unmarshals the "opts" key and replaces every %s in the data source with the persistence name
func GetOpts(name string, config driver.Config) (Opts, error) {
	var opts Opts
	if config != nil && config.IsSet("opts") {
		if err := config.UnmarshalKey("opts", &opts); err != nil {
			return Opts{}, errors.Wrapf(err, "failed getting opts")
		}
	}
	opts.DataSource = strings.ReplaceAll(opts.DataSource, "%s", name)
	return opts, nil
}
