// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package extract finds named entities in text through an ordered fallback
// chain of extraction stages.
//
// A Chain tries each Stage in order and returns the first non-empty
// result. The standard chain runs a cheap capitalized-phrase heuristic
// first and falls back to an LLM extractor only when the heuristic finds
// nothing, so the expensive call is skipped for most text. Stage failures
// are logged and skipped rather than surfaced; extraction degrades to an
// empty result instead of failing the caller.
package extract
