// Package agent implements the per-persona runtime: given the current topic
// and the already-bounded history, produce the persona's next utterance.
//
// A turn assembles the persona's system prompt, a top-K retrieval from the
// agent's long-term memory, and the rendered conversation, then calls the
// chat provider. Tool invocation requests coming back from the model are
// checked against the persona's allow-list, executed (or rejected as text),
// and fed back for a second completion. Generation never fails the turn:
// provider errors degrade to a placeholder utterance and TTS errors degrade
// to a missing audio reference.
package agent
