///////////////////////////////////////////////////////////////////////////////////////////////////
//                                                                                               //
//                                                                                               //
//         oooooo   oooooo     oooo           oooooo   oooooo     oooo         .o8               //
//          `888.    `888.     .8'             `888.    `888.     .8'         "888               //
//           `888.   .8888.   .8' oooo    ooo   `888.   .8888.   .8' .ooooo.   888oooo.          //
//            `888  .8'`888. .8'   `88.  .8'     `888  .8'`888. .8' d88' `88b  d88' `88b         //
//             `888.8'  `888.8'     `88..8'       `888.8'  `888.8'  888ooo888  888   888         //
//              `888'    `888'       `888'         `888'    `888'   888    .o  888   888         //
//               `8'      `8'         .8'           `8'      `8'    `Y8bod8P'  `Y8bod8P'         //
//                                .o..P'                                                         //
//                                `Y8P'                                                          //
//                                                                                               //
//                                                                                               //
//                              Copyright (C) 2024  Wyatt Sheffield                              //
//                                                                                               //
//                 This program is free software: you can redistribute it and/or                 //
//                 modify it under the terms of the GNU General Public License as                //
//                 published by the Free Software Foundation, either version 3 of                //
//                      the License, or (at your option) any later version.                      //
//                                                                                               //
//                This program is distributed in the hope that it will be useful,                //
//                 but WITHOUT ANY WARRANTY; without even the implied warranty of                //
//                 MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the                 //
//                          GNU General Public License for more details.                         //
//                                                                                               //
//                   You should have received a copy of the GNU General Public                   //
//                         License along with this program.  If not, see                         //
//                                <https://www.gnu.org/licenses/>.                               //
//                                                                                               //
//                                                                                               //
///////////////////////////////////////////////////////////////////////////////////////////////////

package highlight

import (
	"sync"
	"time"

	"github.com/Yiling-J/theine-go"
)

// defaultBoundedEntries caps a TTL-only policy.
const defaultBoundedEntries = 128

// Policy bounds the cache. The zero value keeps every highlighter for the life of the process.
type Policy struct {
	MaxEntries int           `yaml:"max_entries" json:"max_entries"`
	TTL        time.Duration `yaml:"ttl" json:"ttl"`
}

func (p Policy) Bounded() bool {
	return p.MaxEntries > 0 || p.TTL > 0
}

type store interface {
	get(key string) (*Highlighter, bool)
	set(key string, h *Highlighter)
	len() int
	close()
}

func newStore(p Policy) (store, error) {
	if !p.Bounded() {
		return &mapStore{m: make(map[string]*Highlighter)}, nil
	}
	size := p.MaxEntries
	if size <= 0 {
		size = defaultBoundedEntries
	}
	c, err := theine.NewBuilder[string, *Highlighter](int64(size)).Build()
	if err != nil {
		return nil, err
	}
	return &theineStore{c: c, ttl: p.TTL}, nil
}

type mapStore struct {
	mu sync.RWMutex
	m  map[string]*Highlighter
}

func (s *mapStore) get(key string) (*Highlighter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.m[key]
	return h, ok
}

func (s *mapStore) set(key string, h *Highlighter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = h
}

func (s *mapStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

func (s *mapStore) close() {}

type theineStore struct {
	c   *theine.Cache[string, *Highlighter]
	ttl time.Duration
}

func (s *theineStore) get(key string) (*Highlighter, bool) {
	return s.c.Get(key)
}

func (s *theineStore) set(key string, h *Highlighter) {
	if s.ttl > 0 {
		s.c.SetWithTTL(key, h, 1, s.ttl)
		return
	}
	s.c.Set(key, h, 1)
}

func (s *theineStore) len() int {
	return s.c.Len()
}

func (s *theineStore) close() {
	s.c.Close()
}
