package agents

import (
	"context"
	"strings"
)

// StaticClient is the keyless fallback used in development and tests: it
// fabricates deterministic, structurally valid artifacts so the pipeline can
// run end to end without a configured agent backend.
type StaticClient struct{}

func NewStaticClient() *StaticClient {
	return &StaticClient{}
}

func (s *StaticClient) Model() string { return "static" }

func (s *StaticClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if req.JSONResponse {
		return `{
  "palette": {"colors": ["#111111", "#fafafa"], "typography": "Inter"},
  "files": [
    {"path": "data/products.js", "description": "Product data", "estimated_lines": 40, "priority": 1},
    {"path": "App.jsx", "description": "Storefront assembly", "estimated_lines": 160, "priority": 2}
  ],
  "complexity": 2
}`, nil
	}
	// The plan listing and already-built sections mention every path, so
	// dispatch on the instruction line that names the target file.
	if strings.Contains(req.Prompt, "Produce the complete contents of data/") {
		return staticDataFile, nil
	}
	return staticAppFile, nil
}

var staticDataFile = `export const products = [
  { id: 1, name: 'Sample Product', price: 24, description: 'Placeholder item' },
  { id: 2, name: 'Second Product', price: 48, description: 'Another placeholder' },
];`

var staticAppFile = `import React from 'react';
import { products } from './data/products.js';

function Hero() {
  return (
    <section className="hero">
      <h1>Your Store</h1>
      <p>Generated placeholder storefront</p>
    </section>
  );
}

function Products() {
  return (
    <section className="products">
      {products.map((p) => (
        <article key={p.id}>
          <h2>{p.name}</h2>
          <p>${p.price}</p>
        </article>
      ))}
    </section>
  );
}

export default function App() {
  return (
    <div>
      <Hero />
      <Products />
      <footer>Placeholder footer</footer>
    </div>
  );
}`
