// Package textutil provides tokenization and similarity primitives for
// free-form workshop text: photo descriptions, OCR output, session titles,
// and note snippets.
//
// Tokenization is unicode-aware so German umlauts survive, and similarity
// comes in two flavors: token-set overlap for keyword matching and cosine
// similarity for embedding vectors.
package textutil
