package bloom

/*

# Bloom prescreens for hierarchy snapshots (single filter, in-place)

This package provides primitive building blocks for Bloom filters intended to
live inside a preallocated region of a hierarchy snapshot blob.

It mirrors the `hierarchy` package style:

- small, composable functions
- explicit byte layouts
- index arithmetic on byte slices
- a burden of knowledge on the caller for hot paths

## What Bloom filters are (and are not)

Bloom filters provide a *probabilistic prefilter*:

- If the filter says "definitely not present", then the node id is not present.
- If the filter says "maybe present", then the node id may or may not be
  present (false positives are possible).

Bloom filters are NOT commitments and do not provide proofs of exclusion. They
are only an I/O optimization: a reader asking "which snapshots can contain
node X" can skip a snapshot without decoding its node records.

## Layout

A region holds exactly one filter over 8-byte big-endian node ids:

	+----------------------+  32B header (magic, version, params)
	| HeaderV1             |
	+----------------------+  ceil(mBits/8) bitset bytes
	| bitset               |
	+----------------------+

## Indexing and bit numbering

Deterministic double-hashing from a single domain-separated SHA-256, probing
(h1 + i*h2) mod mBits for i in [0, k). Bit numbering is LSB0: bit j lives in
byte j>>3 at bit position j&7.

## API versioning: why the `V1` suffix exists

Functions in this package are suffixed with a format version (for example
`InitV1`, `InsertV1`, `MaybeContainsV1`).

The suffix means: **this function implements Bloom format version 1** - i.e.
it assumes a specific serialized header layout (magic/version/fields), bit
numbering convention, and hashing/index-derivation rules.

This is deliberate: it allows future incompatible changes (a new header layout,
a different hash scheme, a different bit order, etc.) to be introduced as `V2`
side-by-side, without silently breaking previously persisted data.

*/
