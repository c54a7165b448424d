package core

import (
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the persisted types. Field order is the
// wire format; append new fields at the end only.
var (
	IDMUS         = idMUS{}
	DocumentMUS   = documentMUS{}
	IndexEntryMUS = indexEntryMUS{}

	vectorMUS = ord.NewSliceSer[float32](raw.Float32)
)

var (
	_ mus.Serializer[ID]         = IDMUS
	_ mus.Serializer[Document]   = DocumentMUS
	_ mus.Serializer[IndexEntry] = IndexEntryMUS
)

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return ord.String.Marshal(string(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	s, n, err := ord.String.Unmarshal(bs)
	return ID(s), n, err
}

func (idMUS) Size(id ID) int {
	return ord.String.Size(string(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return ord.String.Skip(bs)
}

type documentMUS struct{}

func (documentMUS) Marshal(d Document, bs []byte) (n int) {
	n = ord.String.Marshal(string(d.Id), bs)
	n += ord.String.Marshal(d.Filename, bs[n:])
	n += ord.String.Marshal(d.BlobRef, bs[n:])
	n += varint.Uint64.Marshal(d.Checksum, bs[n:])
	n += ord.String.Marshal(d.Content, bs[n:])
	n += varint.Int.Marshal(int(d.Status), bs[n:])
	n += ord.String.Marshal(d.ErrorMessage, bs[n:])
	n += varint.Int64.Marshal(d.CreatedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(d.UpdatedAt.UnixMicro(), bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (d Document, n int, err error) {
	var (
		s  string
		v  int
		n1 int
	)
	if s, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	d.Id = ID(s)
	if d.Filename, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.BlobRef, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Checksum, n1, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if d.Content, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	if v, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	d.Status = Status(v)
	if d.ErrorMessage, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	var micros int64
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	d.CreatedAt = time.UnixMicro(micros).UTC()
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return d, n + n1, err
	}
	n += n1
	d.UpdatedAt = time.UnixMicro(micros).UTC()
	return d, n, nil
}

func (documentMUS) Size(d Document) (size int) {
	size = ord.String.Size(string(d.Id))
	size += ord.String.Size(d.Filename)
	size += ord.String.Size(d.BlobRef)
	size += varint.Uint64.Size(d.Checksum)
	size += ord.String.Size(d.Content)
	size += varint.Int.Size(int(d.Status))
	size += ord.String.Size(d.ErrorMessage)
	size += varint.Int64.Size(d.CreatedAt.UnixMicro())
	size += varint.Int64.Size(d.UpdatedAt.UnixMicro())
	return size
}

func (documentMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	for i := 0; i < 3; i++ {
		if n1, err = ord.String.Skip(bs[n:]); err != nil {
			return n + n1, err
		}
		n += n1
	}
	if n1, err = varint.Uint64.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = ord.String.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = varint.Int.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = ord.String.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	for i := 0; i < 2; i++ {
		if n1, err = varint.Int64.Skip(bs[n:]); err != nil {
			return n + n1, err
		}
		n += n1
	}
	return n, nil
}

type indexEntryMUS struct{}

func (indexEntryMUS) Marshal(e IndexEntry, bs []byte) (n int) {
	n = ord.String.Marshal(string(e.DocumentId), bs)
	n += varint.Int.Marshal(e.Seq, bs[n:])
	n += ord.String.Marshal(e.Text, bs[n:])
	n += vectorMUS.Marshal(e.Vector, bs[n:])
	return n
}

func (indexEntryMUS) Unmarshal(bs []byte) (e IndexEntry, n int, err error) {
	var (
		s  string
		n1 int
	)
	if s, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	e.DocumentId = ID(s)
	if e.Seq, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if e.Vector, n1, err = vectorMUS.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	return e, n, nil
}

func (indexEntryMUS) Size(e IndexEntry) (size int) {
	size = ord.String.Size(string(e.DocumentId))
	size += varint.Int.Size(e.Seq)
	size += ord.String.Size(e.Text)
	size += vectorMUS.Size(e.Vector)
	return size
}

func (indexEntryMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	if n, err = ord.String.Skip(bs); err != nil {
		return n, err
	}
	if n1, err = varint.Int.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = ord.String.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = vectorMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	return n, nil
}
