package core

import (
	"encoding/binary"
	"hash"
	"hash/fnv"

	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/qlearning"
)

// PieceKind tags the concrete type behind a Piece.
type PieceKind int

const (
	KindUnit PieceKind = iota
	KindFlag
)

func (k PieceKind) String() string {
	switch k {
	case KindUnit:
		return "unit"
	case KindFlag:
		return "flag"
	default:
		return "unknown"
	}
}

// Piece is implemented only by *Unit and *Flag. Consumers switch on Kind()
// or on the concrete type.
type Piece interface {
	Kind() PieceKind
	Base() *PieceBase
	isPiece()
}

// PieceBase holds the state shared by every piece.
type PieceBase struct {
	Team            Team
	Position        Position
	InitialPosition Position
}

func (p *PieceBase) Base() *PieceBase { return p }

func (p *PieceBase) isPiece() {}

func (p *PieceBase) reset() { p.Position = p.InitialPosition }

func (p *PieceBase) equal(o *PieceBase) bool {
	return p.Team == o.Team && p.Position == o.Position
}

func (p *PieceBase) hashInto(h *hash64) {
	h.writeInt(int(p.Team))
	h.writeInt(p.Position.Row)
	h.writeInt(p.Position.Col)
}

// Unit is a controllable piece. A unit with JailTimer > 0 is in jail: it
// cannot move and never carries a flag.
type Unit struct {
	PieceBase
	Name      string
	HasFlag   bool
	JailTimer int
	Actor     *qlearning.Actor
}

// NewUnit creates a unit standing on its spawn position.
func NewUnit(name string, team Team, spawn Position, actor *qlearning.Actor) *Unit {
	return &Unit{
		PieceBase: PieceBase{Team: team, Position: spawn, InitialPosition: spawn},
		Name:      name,
		Actor:     actor,
	}
}

func (u *Unit) Kind() PieceKind { return KindUnit }

// Policy returns the unit's learned policy.
func (u *Unit) Policy() *qlearning.Actor { return u.Actor }

func (u *Unit) InJail() bool { return u.JailTimer > 0 }

// Reset returns the unit to its spawn with no flag and no jail time.
func (u *Unit) Reset() {
	u.reset()
	u.HasFlag = false
	u.JailTimer = 0
}

// Clone copies the unit. The clone shares the Actor.
func (u *Unit) Clone() *Unit {
	c := *u
	return &c
}

// Equal compares team, position, flag possession and jail status.
func (u *Unit) Equal(o *Unit) bool {
	return u.equal(&o.PieceBase) && u.HasFlag == o.HasFlag && u.InJail() == o.InJail()
}

// Hash is consistent with Equal.
func (u *Unit) Hash() uint64 {
	h := newHash64()
	u.hashInto(h)
	return h.sum()
}

func (u *Unit) hashInto(h *hash64) {
	u.PieceBase.hashInto(h)
	h.writeBool(u.HasFlag)
	h.writeBool(u.InJail())
}

// Flag is a team's flag. It is grounded while resting on its spawn.
type Flag struct {
	PieceBase
	Grounded bool
}

// NewFlag creates a grounded flag.
func NewFlag(team Team, spawn Position) *Flag {
	return &Flag{
		PieceBase: PieceBase{Team: team, Position: spawn, InitialPosition: spawn},
		Grounded:  true,
	}
}

func (f *Flag) Kind() PieceKind { return KindFlag }

// Reset returns the flag to its spawn, grounded.
func (f *Flag) Reset() {
	f.reset()
	f.Grounded = true
}

func (f *Flag) Clone() *Flag {
	c := *f
	return &c
}

func (f *Flag) Equal(o *Flag) bool {
	return f.equal(&o.PieceBase) && f.Grounded == o.Grounded
}

func (f *Flag) Hash() uint64 {
	h := newHash64()
	f.hashInto(h)
	return h.sum()
}

func (f *Flag) hashInto(h *hash64) {
	f.PieceBase.hashInto(h)
	h.writeBool(f.Grounded)
}

// hash64 feeds integers into an FNV-1a hash.
type hash64 struct {
	h   hash.Hash64
	buf []byte
}

func newHash64() *hash64 {
	return &hash64{h: fnv.New64a(), buf: make([]byte, 0, binary.MaxVarintLen64)}
}

func (h *hash64) writeInt(v int) {
	h.buf = binary.AppendVarint(h.buf[:0], int64(v))
	h.h.Write(h.buf)
}

func (h *hash64) writeBool(v bool) {
	if v {
		h.writeInt(1)
	} else {
		h.writeInt(0)
	}
}

func (h *hash64) sum() uint64 { return h.h.Sum64() }

// HashUnits combines unit hashes in order.
func HashUnits(units []*Unit) uint64 {
	h := newHash64()
	for _, u := range units {
		u.hashInto(h)
	}
	return h.sum()
}
