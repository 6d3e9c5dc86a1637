// Package voiceprint turns decoded recordings into fixed-length speaker
// embeddings and compares them.
//
// Two backends implement Embedder:
//   - BuiltinEmbedder computes MFCC statistics in-process (gonum FFT). It needs
//     no models and no network, and is the default.
//   - CommandEmbedder runs an external speaker encoder. By default it launches
//     resemblyzer's pretrained VoiceEncoder through uvx.
//
// Both backends share the same preprocessing contract: recordings are volume
// normalized (never attenuated) and long silences are trimmed before
// embedding. Embeddings are L2-normalized, so CosineSimilarity reduces to a
// dot product in practice.
package voiceprint
