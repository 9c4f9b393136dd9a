package domain

import "golang.org/x/crypto/sha3"

// Keccak256 hashes the concatenation of the given byte slices with legacy
// keccak-256 (the Ethereum variant, not NIST SHA3-256).
func Keccak256(data ...[]byte) Hash {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	var h Hash
	d.Sum(h[:0])
	return h
}

// Namehash computes the node for a dot-separated name, empty name being the
// zero node. Labels are hashed right-to-left onto their parent.
func Namehash(name string) Node {
	var node Node
	if name == "" {
		return node
	}
	labels := splitLabels(name)
	for i := len(labels) - 1; i >= 0; i-- {
		label := Keccak256([]byte(labels[i]))
		node = Keccak256(node[:], label[:])
	}
	return node
}

func splitLabels(name string) []string {
	var labels []string
	start := 0
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			labels = append(labels, name[start:i])
			start = i + 1
		}
	}
	return append(labels, name[start:])
}
