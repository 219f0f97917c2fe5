//go:build !ios && !android && (amd64 || arm64)

package avutil

import (
	"runtime"
	"unsafe"

	"github.com/obinnaokechukwu/ffnative/internal/bindings"
	"github.com/obinnaokechukwu/ffnative/native"
)

// AVDictionary is FFmpeg's opaque dictionary.
type AVDictionary struct{ _ [0]byte }

// Dictionary flags (AV_DICT_*).
const (
	DictMatchCase     int32 = 1
	DictIgnoreSuffix  int32 = 2
	DictDontOverwrite int32 = 16
	DictAppend        int32 = 32
	DictMultiKey      int32 = 64
)

// dictEntry mirrors AVDictionaryEntry.
type dictEntry struct {
	key   *byte
	value *byte
}

// Dictionaries are interned by the address of the cell holding the
// AVDictionary pointer. av_dict_set reallocates the dictionary itself, so
// that address is the only stable identity.
var dictionaries = native.NewIdentityCache[unsafe.Pointer, Dictionary]()

// Dictionary wraps an AVDictionary** cell.
//
// FFmpeg reallocates or frees the dictionary on every av_dict_set, so the
// cell content is re-read on every call.
type Dictionary struct {
	native.Holder[AVDictionary]
	owner *native.Ownership[AVDictionary]
}

// NewDictionary returns an empty dictionary that owns its cell. The
// dictionary is freed with av_dict_free when it is closed.
func NewDictionary() (*Dictionary, error) {
	if avDictFree == nil {
		return nil, bindings.ErrNotLoaded
	}
	o, err := native.NewOwning(nil, func(s native.Slot[AVDictionary]) {
		avDictFree(s.Cell())
	})
	if err != nil {
		return nil, err
	}
	d, err := bindDictionary(o)
	if err != nil {
		o.Release()
		return nil, err
	}
	return d, nil
}

// WrapDictionary returns a view onto a dictionary cell owned elsewhere,
// such as an options argument handed over by another binding. Closing the
// view never frees the dictionary. The cell must already hold a
// dictionary.
//
// Wrapping the same cell again while the first view is alive returns the
// same *Dictionary. Wrapping the cell of a live owning Dictionary fails
// with native.ErrInvalidArgument; use that Dictionary instead.
func WrapDictionary(s native.Slot[AVDictionary]) (*Dictionary, error) {
	if d := dictionaries.Lookup(cellKey(s)); d != nil {
		if d.Owned() {
			return nil, &native.Error{Op: "WrapDictionary", Type: "avutil.AVDictionary", Err: native.ErrInvalidArgument}
		}
		return d, nil
	}
	o, err := native.NewShared(s)
	if err != nil {
		return nil, err
	}
	return bindDictionary(o)
}

func cellKey(s native.Slot[AVDictionary]) native.Handle[unsafe.Pointer] {
	return native.HandleAt[unsafe.Pointer](s.Address())
}

// bindDictionary interns a new Dictionary for o. A fresh owning cell
// replaces any stale entry at its address; a shared ownership over a cell
// that already has a live view is dropped in favour of that view.
func bindDictionary(o *native.Ownership[AVDictionary]) (*Dictionary, error) {
	d := &Dictionary{owner: o}
	if err := d.Bind(o, d); err != nil {
		o.Release()
		return nil, err
	}
	s, _ := o.Slot()
	key := cellKey(s)
	create := func(native.Handle[unsafe.Pointer]) *Dictionary { return d }

	got := dictionaries.GetOrCreate(key, create)
	if got == d {
		return d, nil
	}
	if o.Mode() == native.Owning {
		dictionaries.Forget(key)
		return dictionaries.GetOrCreate(key, create), nil
	}
	d.Holder.Release()
	o.Release()
	return got, nil
}

// LookupDictionary returns the live Dictionary wrapping the given cell,
// or nil.
func LookupDictionary(s native.Slot[AVDictionary]) *Dictionary {
	return dictionaries.Lookup(cellKey(s))
}

// Owned reports whether closing d frees the dictionary.
func (d *Dictionary) Owned() bool {
	return d.owner.Mode() == native.Owning
}

// Set stores key=value. FFmpeg may move the dictionary.
func (d *Dictionary) Set(key, value string, flags int32) error {
	s, err := d.Slot()
	if err != nil {
		return err
	}
	v := cString(value)
	ret := avDictSet(s.Cell(), key, v, flags)
	runtime.KeepAlive(v)
	return NewError(ret, "av_dict_set")
}

// Delete removes key. Deleting the last entry frees the dictionary and
// nulls the cell.
func (d *Dictionary) Delete(key string) error {
	s, err := d.Slot()
	if err != nil {
		return err
	}
	return NewError(avDictSet(s.Cell(), key, nil, 0), "av_dict_set")
}

// Get returns the value stored under key.
func (d *Dictionary) Get(key string) (string, bool) {
	m, err := d.Address()
	if err != nil || m.IsEmpty() {
		return "", false
	}
	entry := avDictGet(m.Pointer(), key, nil, DictMatchCase)
	if entry == nil {
		return "", false
	}
	return goString((*dictEntry)(entry).value), true
}

// Count returns the number of entries.
func (d *Dictionary) Count() int {
	m, err := d.Address()
	if err != nil || m.IsEmpty() {
		return 0
	}
	return int(avDictCount(m.Pointer()))
}

// Entries copies every entry into a map.
func (d *Dictionary) Entries() map[string]string {
	result := make(map[string]string)
	m, err := d.Address()
	if err != nil || m.IsEmpty() {
		return result
	}

	// av_dict_get with an empty key and AV_DICT_IGNORE_SUFFIX iterates all entries
	var prev unsafe.Pointer
	for {
		entry := avDictGet(m.Pointer(), "", prev, DictIgnoreSuffix)
		if entry == nil {
			break
		}
		e := (*dictEntry)(entry)
		result[goString(e.key)] = goString(e.value)
		prev = entry
	}
	return result
}

// Copy returns a new owning dictionary with the same entries.
func (d *Dictionary) Copy() (*Dictionary, error) {
	src, err := d.Address()
	if err != nil {
		return nil, err
	}
	dst, err := NewDictionary()
	if err != nil {
		return nil, err
	}
	if src.IsEmpty() {
		return dst, nil
	}
	s, _ := dst.Slot()
	if err := NewError(avDictCopy(s.Cell(), src.Pointer(), 0), "av_dict_copy"); err != nil {
		dst.Close()
		return nil, err
	}
	return dst, nil
}

// Release implements native.Dependent. Releasing the dictionary view also
// releases its ownership, so an owning dictionary is freed.
func (d *Dictionary) Release() {
	if d.Released() {
		return
	}
	if s, err := d.Slot(); err == nil {
		dictionaries.Forget(cellKey(s))
	}
	d.Holder.Release()
	d.owner.Release()
}

// Close frees an owning dictionary or detaches a shared view. Every other
// holder of the same ownership is released first.
func (d *Dictionary) Close() error {
	d.Release()
	return nil
}
