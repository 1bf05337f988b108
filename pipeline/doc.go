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


// Package pipeline orchestrates question answering as a small state machine.
//
// A question moves through route -> vector|hybrid -> generate -> done. The
// route step is a phrase-based heuristic: definitional questions take the
// plain vector route, everything else takes the hybrid route with
// neighboring-passage enrichment. The generate step builds a prompt from
// the numbered context blocks and calls the answer generator.
//
// Engine.Ask consults the answer cache before the state machine runs and
// writes it only after a successful generation, so retrieval or generation
// failures never poison the cache. Every step appends a human-readable
// trace entry to the result's processing steps.
package pipeline
