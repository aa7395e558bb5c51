package common

// SeedSize is the size in bytes of a derived encryption seed, an owner
// secret and the vault master key.
const SeedSize = 32

// GenesisPrevHash is the prev-hash sentinel carried by the genesis block.
const GenesisPrevHash = "0"
