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


// Package api exposes the question answering service over HTTP.
//
// The Server wires the answer engine, retriever, ingestion pipeline,
// repositories, semantic cache, and entity extraction chain behind a chi
// router under /api/v1, plus /healthz and Prometheus /metrics. Handlers
// translate JSON requests into component calls and map domain errors to
// status codes; they never expose internal failures beyond a generic
// message.
package api
