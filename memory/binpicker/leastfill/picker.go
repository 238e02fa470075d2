// Copyright 2021 ecodeclub
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package leastfill

import (
	"github.com/ecodeclub/balance-api"
	"github.com/ecodeclub/balance-api/balanceerr"
)

// Picker 挑选当前数量最少的箱子，数量相同的时候取靠前的那个。
type Picker[K comparable] struct{}

func NewPicker[K comparable]() *Picker[K] {
	return &Picker[K]{}
}

func (p *Picker[K]) Pick(records []balance.BinCount[K]) (K, error) {
	if len(records) == 0 {
		var zero K
		return zero, balanceerr.ErrNoBins
	}
	idx := 0
	for i, r := range records {
		if r.Count < records[idx].Count {
			idx = i
		}
	}
	return records[idx].ID, nil
}
