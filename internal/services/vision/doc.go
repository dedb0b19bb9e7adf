// Package vision calls an OpenAI-compatible chat completion endpoint to
// analyze workshop photos: scene classification, a short description, OCR of
// visible text, and topic keywords. Each call is a single attempt; callers
// compose retries around it.
package vision
