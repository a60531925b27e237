package value

import "github.com/oitzujoey/duck-lisp-sub001/lang/heap"

// User is a host-owned opaque value (spec.md §6.1 "user-defined host
// objects"): Data is whatever the embedding Go program attached, WalkFn
// lets the host expose any heap.Refs it stashed inside Data to the
// collector, and Destroy runs once when the GC reclaims the slot.
type User struct {
	Data    interface{}
	WalkFn  func(interface{}, func(heap.Ref))
	Destroy func(interface{})
}

func (u *User) Kind() Kind { return KindUser }
func (u *User) Walk(yield func(heap.Ref)) {
	if u.WalkFn != nil {
		u.WalkFn(u.Data, yield)
	}
}
func (u *User) Release() {
	if u.Destroy != nil {
		u.Destroy(u.Data)
	}
}

// NewUser allocates a host-owned opaque value. walkFn and destroy may both
// be nil if the host payload holds no heap.Refs and needs no cleanup.
func NewUser(p *heap.Pool, data interface{}, walkFn func(interface{}, func(heap.Ref)), destroy func(interface{})) (heap.Ref, error) {
	return p.Alloc(&User{Data: data, WalkFn: walkFn, Destroy: destroy})
}

// UserData returns the host payload stored at ref.
func UserData(p *heap.Pool, ref heap.Ref) (interface{}, error) {
	u, ok := mustGet(p, ref).(*User)
	if !ok {
		return nil, invalid("expected user value, got %s", TypeName(p, ref))
	}
	return u.Data, nil
}
