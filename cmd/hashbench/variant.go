package main

import (
	"fmt"

	"github.com/swisskv/hashtable/pkg/blitzmap"
	"github.com/swisskv/hashtable/pkg/cmap"
	"github.com/swisskv/hashtable/pkg/densemap"
	"github.com/swisskv/hashtable/pkg/hashkit"
)

// variant is the common surface hashbench drives against whichever of the
// three map types the caller selected, fixed to string keys/values for CLI
// ergonomics (no command-line syntax for arbitrary K/V).
type variant interface {
	Insert(key, value string) bool
	InsertOrUpdate(key, value string)
	Get(key string) (string, bool)
	Update(key, value string) bool
	Remove(key string) bool
	Contains(key string) bool
	Clear()
	Len() int
	Cap() int
	ForEach(func(key, value string) bool)
}

// newVariant constructs the named map type with the given capacity and load
// factor. loadFactor is ignored by cmap, which has none (spec.md §6.2: "newer
// CMap variant uses no load factor").
func newVariant(name string, capacity int, loadFactor float64) (variant, error) {
	switch name {
	case "dense", "densemap":
		m, err := densemap.New[string, string](densemap.Options{
			InitialCapacity: capacity,
			LoadFactor:      loadFactor,
		}, hashkit.StringHasher{})
		if err != nil {
			return nil, err
		}

		return denseVariant{m}, nil

	case "blitz", "blitzmap":
		m, err := blitzmap.New[string, string](blitzmap.Options{
			InitialCapacity: capacity,
			LoadFactor:      loadFactor,
		}, hashkit.StringHasher{})
		if err != nil {
			return nil, err
		}

		return blitzVariant{m}, nil

	case "c", "cmap":
		m, err := cmap.NewConcurrent[string, string](cmap.Options{
			InitialCapacity: capacity,
		}, hashkit.StringHasher{})
		if err != nil {
			return nil, err
		}

		return cmapVariant{m}, nil

	default:
		return nil, fmt.Errorf("unknown variant %q (want dense, blitz, or c)", name)
	}
}

type denseVariant struct{ m *densemap.Map[string, string] }

func (d denseVariant) Insert(k, v string) bool           { return d.m.Insert(k, v) }
func (d denseVariant) InsertOrUpdate(k, v string)        { d.m.InsertOrUpdate(k, v) }
func (d denseVariant) Get(k string) (string, bool)       { return d.m.Get(k) }
func (d denseVariant) Update(k, v string) bool           { return d.m.Update(k, v) }
func (d denseVariant) Remove(k string) bool              { return d.m.Remove(k) }
func (d denseVariant) Contains(k string) bool            { return d.m.Contains(k) }
func (d denseVariant) Clear()                            { d.m.Clear() }
func (d denseVariant) Len() int                          { return d.m.Count() }
func (d denseVariant) Cap() int                          { return d.m.Cap() }
func (d denseVariant) ForEach(fn func(k, v string) bool) { d.m.ForEach(fn) }

type blitzVariant struct{ m *blitzmap.Map[string, string] }

func (b blitzVariant) Insert(k, v string) bool           { return b.m.Insert(k, v) }
func (b blitzVariant) InsertOrUpdate(k, v string)        { b.m.InsertOrUpdate(k, v) }
func (b blitzVariant) Get(k string) (string, bool)       { return b.m.Get(k) }
func (b blitzVariant) Update(k, v string) bool           { return b.m.Update(k, v) }
func (b blitzVariant) Remove(k string) bool              { return b.m.Remove(k) }
func (b blitzVariant) Contains(k string) bool            { return b.m.Contains(k) }
func (b blitzVariant) Clear()                            { b.m.Clear() }
func (b blitzVariant) Len() int                          { return b.m.Count() }
func (b blitzVariant) Cap() int                          { return b.m.Cap() }
func (b blitzVariant) ForEach(fn func(k, v string) bool) { b.m.ForEach(fn) }

type cmapVariant struct{ m *cmap.Map[string, string] }

func (c cmapVariant) Insert(k, v string) bool           { return c.m.Insert(k, v) }
func (c cmapVariant) InsertOrUpdate(k, v string)        { c.m.InsertOrUpdate(k, v) }
func (c cmapVariant) Get(k string) (string, bool)       { return c.m.Get(k) }
func (c cmapVariant) Update(k, v string) bool           { return c.m.Update(k, v) }
func (c cmapVariant) Remove(k string) bool              { return c.m.Remove(k) }
func (c cmapVariant) Contains(k string) bool            { return c.m.Contains(k) }
func (c cmapVariant) Clear()                            { c.m.Clear() }
func (c cmapVariant) Len() int                          { return c.m.Len() }
func (c cmapVariant) Cap() int                          { return c.m.Cap() }
func (c cmapVariant) ForEach(fn func(k, v string) bool) { c.m.ForEach(fn) }
