/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import "github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver"

// SliceIterator iterates over already loaded reads
type SliceIterator struct {
	idx   int
	Items []*driver.Read
}

func NewSliceIterator(items []*driver.Read) *SliceIterator {
	return &SliceIterator{Items: items}
}

func (r *SliceIterator) Next() (*driver.Read, error) {
	if r.idx >= len(r.Items) {
		return nil, nil
	}
	r.idx++
	return r.Items[r.idx-1], nil
}

func (r *SliceIterator) Close() {}
