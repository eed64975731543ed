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


// Package search provides hybrid retrieval over the chunk index. Three
// signals run per query: exact substring matches, vector similarity, and
// keyword-routed file pulls. Their results are fused on a shared distance
// scale where the exact-match constant sits below typical embedding
// distances and the keyword constant sits above them.
package search
