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
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

// Cache memoises highlighters by key. Concurrent requests for a key that is being built wait
// for that one build. Failed builds are not remembered.
type Cache struct {
	build  BuildFunc
	store  store
	group  singleflight.Group
	logger *slog.Logger
	reg    prometheus.Registerer
	m      *metrics
}

type Option func(*Cache)

// WithBuilder replaces Build as the construction function.
func WithBuilder(fn BuildFunc) Option {
	return func(c *Cache) {
		c.build = fn
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithRegisterer exports the cache metrics to reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Cache) {
		c.reg = reg
	}
}

func NewCache(policy Policy, opts ...Option) (*Cache, error) {
	c := &Cache{
		build:  Build,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	var err error
	if c.store, err = newStore(policy); err != nil {
		return nil, err
	}
	if c.m, err = newMetrics(c.reg); err != nil {
		c.store.close()
		return nil, err
	}
	return c, nil
}

// Get returns the highlighter for theme and languages, building it on first use. If ctx ends
// while waiting, Get returns ctx.Err(); the build itself carries on for the other waiters and
// for the cache.
func (c *Cache) Get(ctx context.Context, theme Theme, languages []string) (*Highlighter, error) {
	key := NewKey(theme, languages)
	id := key.String()
	if h, ok := c.store.get(id); ok {
		c.m.hits.Inc()
		return h, nil
	}
	c.m.misses.Inc()

	ch := c.group.DoChan(id, func() (any, error) {
		if h, ok := c.store.get(id); ok {
			return h, nil
		}
		start := time.Now()
		h, err := c.build(context.WithoutCancel(ctx), key)
		c.m.observeBuild(time.Since(start).Seconds(), err)
		if err != nil {
			c.logger.Warn("highlighter build failed", slog.String("key", id), slog.Any("err", err))
			return nil, err
		}
		c.logger.Debug("highlighter built", slog.String("key", id), slog.Duration("took", time.Since(start)))
		c.store.set(id, h)
		return h, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Highlighter), nil
	}
}

// Len is the number of highlighters currently held.
func (c *Cache) Len() int {
	return c.store.len()
}

func (c *Cache) Close() {
	c.store.close()
}
