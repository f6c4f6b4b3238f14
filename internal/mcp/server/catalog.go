// Copyright 2025 Tom Barlow
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

package server

// registerCatalog registers the representative CML tool catalog: labs,
// nodes, links/interfaces, annotations, users/groups, system, node
// definitions, topologies, and packet capture.
func (s *Server) registerCatalog() {
	s.registerLabTools()
	s.registerNodeTools()
	s.registerLinkTools()
	s.registerAnnotationTools()
	s.registerUserTools()
	s.registerSystemTools()
	s.registerNodeDefinitionTools()
	s.registerTopologyTools()
	s.registerPcapTools()
}
