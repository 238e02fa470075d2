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

package memory

import (
	"github.com/ecodeclub/balance-api"
)

// BinPicker 此抽象在条目找不到归属箱子的时候，为它挑选一个落点。
type BinPicker[K comparable] interface {
	// Pick 返回选中的箱子标识，records 表示当前每个箱子的数量
	Pick(records []balance.BinCount[K]) (K, error)
}
