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

package balance

// Total 所有箱子的条目总数，空快照返回 0。
func Total[K comparable](records []BinCount[K]) int64 {
	var total int64
	for _, r := range records {
		total += r.Count
	}
	return total
}

// Low 均衡之后每个箱子最少持有的数量，即 total/n 向下取整。
func Low[K comparable](records []BinCount[K]) int64 {
	return Total(records) / int64(len(records))
}

// High 均衡之后每个箱子最多持有的数量，即 total/n 向上取整。
func High[K comparable](records []BinCount[K]) int64 {
	n := int64(len(records))
	total := Total(records)
	high := total / n
	if total%n != 0 {
		high++
	}
	return high
}
