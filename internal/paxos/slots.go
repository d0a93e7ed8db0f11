package paxos

// Per-key state lives in the durable map under the user key with a
// single discriminator byte appended: 'A' for the acceptor record,
// 'L' for the learned record.
const (
	acceptorDiscriminator = 'A'
	learnedDiscriminator  = 'L'
)

func acceptorSlot(key []byte) []byte {
	return append(append([]byte{}, key...), acceptorDiscriminator)
}

func learnedSlot(key []byte) []byte {
	return append(append([]byte{}, key...), learnedDiscriminator)
}
