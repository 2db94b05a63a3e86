package shapelet

import (
	"math"
	"sync"
)

// The Hermite and Laguerre families of a given total degree n span the same
// (n+1)-dimensional function space, so conversion is block-diagonal with one
// (n+1)x(n+1) block per degree. Each block row expresses one real Laguerre
// function as a combination of Hermite functions of the same degree.
//
// The blocks are built from the ladder-operator expansion of the polar
// states: with a_r = (a_x + i a_y)/sqrt(2), a_l = (a_x - i a_y)/sqrt(2),
// the complex polar state (p,q) has Hermite component
//
//	c_nx = sqrt(nx! ny! / (p! q!)) 2^(-n/2)
//	       Sum_{j+k=nx} C(p,j) C(q,k) i^(p-j) (-i)^(q-k)
//
// and the real basis takes sqrt(2) Re / sqrt(2) Im rows for p>q and the
// (real) p==q state directly. That real basis is orthonormal, so every
// block is orthogonal and the inverse conversion is the transpose.

var conversionCache struct {
	sync.Mutex
	blocks [][][]float64 // blocks[n][row][col]
}

// conversionBlock returns the degree-n conversion block, building and
// memoizing it on first use. Orders in this domain stay small (< 20), so
// the cache is never evicted.
func conversionBlock(n int) [][]float64 {
	conversionCache.Lock()
	defer conversionCache.Unlock()
	for len(conversionCache.blocks) <= n {
		conversionCache.blocks = append(conversionCache.blocks, nil)
	}
	if conversionCache.blocks[n] == nil {
		conversionCache.blocks[n] = buildConversionBlock(n)
	}
	return conversionCache.blocks[n]
}

func buildConversionBlock(n int) [][]float64 {
	fact := make([]float64, n+1)
	fact[0] = 1
	for i := 1; i <= n; i++ {
		fact[i] = fact[i-1] * float64(i)
	}
	binom := func(a, b int) float64 {
		return fact[a] / (fact[b] * fact[a-b])
	}
	// i^k for k mod 4
	ipow := [4]complex128{1, 1i, -1, -1i}
	block := make([][]float64, n+1)
	for i := range block {
		block[i] = make([]float64, n+1)
	}
	row := 0
	scale := math.Pow(2, -0.5*float64(n))
	for p := n; 2*p >= n; p-- {
		q := n - p
		c := make([]complex128, n+1)
		for nx := 0; nx <= n; nx++ {
			ny := n - nx
			var sum complex128
			for j := 0; j <= p; j++ {
				k := nx - j
				if k < 0 || k > q {
					continue
				}
				// i^(p-j) * (-i)^(q-k) = i^(p-j) * i^(3(q-k))
				phase := ipow[((p-j)+3*(q-k))%4]
				sum += complex(binom(p, j)*binom(q, k), 0) * phase
			}
			c[nx] = complex(math.Sqrt(fact[nx]*fact[ny]/(fact[p]*fact[q]))*scale, 0) * sum
		}
		if p == q {
			for nx := 0; nx <= n; nx++ {
				block[row][nx] = real(c[nx])
			}
			row++
		} else {
			for nx := 0; nx <= n; nx++ {
				block[row][nx] = math.Sqrt2 * real(c[nx])
				block[row+1][nx] = math.Sqrt2 * imag(c[nx])
			}
			row += 2
		}
	}
	return block
}

// convertVector converts a coefficient or operation vector between basis
// types in place. Because each block is orthogonal the same matrix serves
// both directions (transposed), and both coefficient and operation vectors
// convert identically.
func convertVector(v []float64, from, to BasisType, order int) {
	if from == to {
		return
	}
	scratch := make([]float64, order+1)
	for n := 0; n <= order; n++ {
		block := conversionBlock(n)
		offset := n * (n + 1) / 2
		if from == Hermite {
			for r := 0; r <= n; r++ {
				s := 0.0
				for c := 0; c <= n; c++ {
					s += block[r][c] * v[offset+c]
				}
				scratch[r] = s
			}
		} else {
			for c := 0; c <= n; c++ {
				s := 0.0
				for r := 0; r <= n; r++ {
					s += block[r][c] * v[offset+r]
				}
				scratch[c] = s
			}
		}
		copy(v[offset:offset+n+1], scratch[:n+1])
	}
}
