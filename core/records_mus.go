// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the stored records. Timestamps are Unix microseconds
// and decode in UTC.

var (
	IDMUS            = idMUS{}
	CategoryMUS      = categoryMUS{}
	StageMUS         = stageMUS{}
	TaskStatusMUS    = taskStatusMUS{}
	DocumentMUS      = documentMUS{}
	TopicMUS         = topicMUS{}
	DocumentTopicMUS = documentTopicMUS{}
	TaskMUS          = taskMUS{}
	ChunkMUS         = chunkMUS{}
)

type idMUS struct{}

func (s idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	tmp, n, err := varint.Uint64.Unmarshal(bs)
	return ID(tmp), n, err
}

func (s idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (s idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

type categoryMUS struct{}

func (s categoryMUS) Marshal(v Category, bs []byte) (n int) {
	return ord.String.Marshal(string(v), bs)
}

func (s categoryMUS) Unmarshal(bs []byte) (v Category, n int, err error) {
	tmp, n, err := ord.String.Unmarshal(bs)
	return Category(tmp), n, err
}

func (s categoryMUS) Size(v Category) (size int) {
	return ord.String.Size(string(v))
}

func (s categoryMUS) Skip(bs []byte) (n int, err error) {
	return ord.String.Skip(bs)
}

type stageMUS struct{}

func (s stageMUS) Marshal(v Stage, bs []byte) (n int) {
	return varint.Int.Marshal(int(v), bs)
}

func (s stageMUS) Unmarshal(bs []byte) (v Stage, n int, err error) {
	tmp, n, err := varint.Int.Unmarshal(bs)
	return Stage(tmp), n, err
}

func (s stageMUS) Size(v Stage) (size int) {
	return varint.Int.Size(int(v))
}

func (s stageMUS) Skip(bs []byte) (n int, err error) {
	return varint.Int.Skip(bs)
}

type taskStatusMUS struct{}

func (s taskStatusMUS) Marshal(v TaskStatus, bs []byte) (n int) {
	return ord.String.Marshal(string(v), bs)
}

func (s taskStatusMUS) Unmarshal(bs []byte) (v TaskStatus, n int, err error) {
	tmp, n, err := ord.String.Unmarshal(bs)
	return TaskStatus(tmp), n, err
}

func (s taskStatusMUS) Size(v TaskStatus) (size int) {
	return ord.String.Size(string(v))
}

func (s taskStatusMUS) Skip(bs []byte) (n int, err error) {
	return ord.String.Skip(bs)
}

type documentMUS struct{}

func (s documentMUS) Marshal(v Document, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Type, bs[n:])
	n += ord.String.Marshal(v.Path, bs[n:])
	n += stringsMUS.Marshal(v.Tags, bs[n:])
	n += CategoryMUS.Marshal(v.Category, bs[n:])
	n += StageMUS.Marshal(v.Stage, bs[n:])
	n += timeMUS.Marshal(v.CreatedAt, bs[n:])
	return n + timeMUS.Marshal(v.UpdatedAt, bs[n:])
}

func (s documentMUS) Unmarshal(bs []byte) (v Document, n int, err error) {
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Type, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Path, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Tags, n1, err = stringsMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Category, n1, err = CategoryMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Stage, n1, err = StageMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (s documentMUS) Size(v Document) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.Type)
	size += ord.String.Size(v.Path)
	size += stringsMUS.Size(v.Tags)
	size += CategoryMUS.Size(v.Category)
	size += StageMUS.Size(v.Stage)
	size += timeMUS.Size(v.CreatedAt)
	return size + timeMUS.Size(v.UpdatedAt)
}

func (s documentMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type topicMUS struct{}

func (s topicMUS) Marshal(v Topic, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Name, bs[n:])
	n += raw.Float64.Marshal(v.Frequency, bs[n:])
	n += timeMUS.Marshal(v.InsertedAt, bs[n:])
	return n + timeMUS.Marshal(v.UpdatedAt, bs[n:])
}

func (s topicMUS) Unmarshal(bs []byte) (v Topic, n int, err error) {
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Name, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Frequency, n1, err = raw.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (s topicMUS) Size(v Topic) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Name)
	size += raw.Float64.Size(v.Frequency)
	size += timeMUS.Size(v.InsertedAt)
	return size + timeMUS.Size(v.UpdatedAt)
}

func (s topicMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type documentTopicMUS struct{}

func (s documentTopicMUS) Marshal(v DocumentTopic, bs []byte) (n int) {
	n = IDMUS.Marshal(v.DocumentId, bs)
	return n + IDMUS.Marshal(v.TopicId, bs[n:])
}

func (s documentTopicMUS) Unmarshal(bs []byte) (v DocumentTopic, n int, err error) {
	v.DocumentId, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.TopicId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (s documentTopicMUS) Size(v DocumentTopic) (size int) {
	return IDMUS.Size(v.DocumentId) + IDMUS.Size(v.TopicId)
}

func (s documentTopicMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type taskMUS struct{}

func (s taskMUS) Marshal(v Task, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Title, bs[n:])
	n += timePtrMUS.Marshal(v.DueDate, bs[n:])
	n += TaskStatusMUS.Marshal(v.Status, bs[n:])
	n += IDMUS.Marshal(v.DocumentId, bs[n:])
	n += timeMUS.Marshal(v.InsertedAt, bs[n:])
	return n + timeMUS.Marshal(v.UpdatedAt, bs[n:])
}

func (s taskMUS) Unmarshal(bs []byte) (v Task, n int, err error) {
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.DueDate, n1, err = timePtrMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Status, n1, err = TaskStatusMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.DocumentId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (s taskMUS) Size(v Task) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Title)
	size += timePtrMUS.Size(v.DueDate)
	size += TaskStatusMUS.Size(v.Status)
	size += IDMUS.Size(v.DocumentId)
	size += timeMUS.Size(v.InsertedAt)
	return size + timeMUS.Size(v.UpdatedAt)
}

func (s taskMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type chunkMUS struct{}

func (s chunkMUS) Marshal(v Chunk, bs []byte) (n int) {
	n = ord.String.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.DocumentId, bs[n:])
	n += varint.Int.Marshal(v.Ordinal, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += CategoryMUS.Marshal(v.Category, bs[n:])
	return n + vectorMUS.Marshal(v.Vector, bs[n:])
}

func (s chunkMUS) Unmarshal(bs []byte) (v Chunk, n int, err error) {
	v.Id, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.DocumentId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Ordinal, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Category, n1, err = CategoryMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (s chunkMUS) Size(v Chunk) (size int) {
	size = ord.String.Size(v.Id)
	size += IDMUS.Size(v.DocumentId)
	size += varint.Int.Size(v.Ordinal)
	size += ord.String.Size(v.Text)
	size += ord.String.Size(v.Title)
	size += CategoryMUS.Size(v.Category)
	return size + vectorMUS.Size(v.Vector)
}

func (s chunkMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

var (
	timeMUS    = unixMicroMUS{}
	timePtrMUS = unixMicroPtrMUS{}
	stringsMUS = stringSliceMUS{}
	vectorMUS  = float32SliceMUS{}
)

type unixMicroMUS struct{}

func (s unixMicroMUS) Marshal(v time.Time, bs []byte) (n int) {
	return varint.Int64.Marshal(v.UnixMicro(), bs)
}

func (s unixMicroMUS) Unmarshal(bs []byte) (v time.Time, n int, err error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func (s unixMicroMUS) Size(v time.Time) (size int) {
	return varint.Int64.Size(v.UnixMicro())
}

// A nil pointer is a single false byte.
type unixMicroPtrMUS struct{}

func (s unixMicroPtrMUS) Marshal(v *time.Time, bs []byte) (n int) {
	n = ord.Bool.Marshal(v != nil, bs)
	if v == nil {
		return
	}
	return n + timeMUS.Marshal(*v, bs[n:])
}

func (s unixMicroPtrMUS) Unmarshal(bs []byte) (v *time.Time, n int, err error) {
	present, n, err := ord.Bool.Unmarshal(bs)
	if err != nil || !present {
		return
	}
	t, n1, err := timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	return &t, n, nil
}

func (s unixMicroPtrMUS) Size(v *time.Time) (size int) {
	size = ord.Bool.Size(v != nil)
	if v == nil {
		return
	}
	return size + timeMUS.Size(*v)
}

type stringSliceMUS struct{}

func (s stringSliceMUS) Marshal(v []string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, str := range v {
		n += ord.String.Marshal(str, bs[n:])
	}
	return
}

func (s stringSliceMUS) Unmarshal(bs []byte) (v []string, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	// Every string takes at least its length byte.
	if length < 0 || length > len(bs)-n {
		return nil, n, ErrInvalidLength
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]string, length)
	var n1 int
	for i := range v {
		v[i], n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (s stringSliceMUS) Size(v []string) (size int) {
	size = varint.Int.Size(len(v))
	for _, str := range v {
		size += ord.String.Size(str)
	}
	return
}

type float32SliceMUS struct{}

func (s float32SliceMUS) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return
}

func (s float32SliceMUS) Unmarshal(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	if length < 0 || length > (len(bs)-n)/4 {
		return nil, n, ErrInvalidLength
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]float32, length)
	var n1 int
	for i := range v {
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (s float32SliceMUS) Size(v []float32) (size int) {
	return varint.Int.Size(len(v)) + len(v)*raw.Float32.Size(0)
}
