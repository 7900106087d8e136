package hash

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest input bcrypt reads. Longer passwords are
// truncated to this length before hashing and checking.
const MaxPasswordBytes = 72

// Hasher wraps bcrypt with a configurable cost. The zero value uses bcrypt.DefaultCost.
type Hasher struct {
	Cost int
}

func (h Hasher) cost() int {
	if h.Cost < bcrypt.MinCost || h.Cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return h.Cost
}

func truncate(password string) []byte {
	b := []byte(password)
	if len(b) > MaxPasswordBytes {
		b = b[:MaxPasswordBytes]
	}
	return b
}

// Hash returns a salted hash, so hashing one password twice yields two
// different strings that both verify.
func (h Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(truncate(password), h.cost())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h Hasher) Check(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), truncate(password)) == nil
}

// NeedsRehash reports whether hashed was made with a different cost than h uses.
func (h Hasher) NeedsRehash(hashed string) bool {
	c, err := bcrypt.Cost([]byte(hashed))
	return err != nil || c != h.cost()
}

var dummies sync.Map // cost -> hash

// Dummy returns a hash of a throwaway password made at h's cost. Checking
// against it takes as long as checking a real hash from the same Hasher.
func (h Hasher) Dummy() string {
	c := h.cost()
	if v, ok := dummies.Load(c); ok {
		return v.(string)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte("Unused-Placeholder-1"), c)
	if err != nil {
		return ""
	}
	v, _ := dummies.LoadOrStore(c, string(hashed))
	return v.(string)
}

func HashPassword(password string) (string, error) {
	return Hasher{}.Hash(password)
}

func CheckPassword(hashed, password string) bool {
	return Hasher{}.Check(hashed, password)
}
