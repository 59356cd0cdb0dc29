package util

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
)

func TestClamp(t *testing.T) {
	if Clamp(-1, 0, 1) != 0 {
		t.Errorf("Clamp: -1 is not in [0, 1]")
	}

	if Clamp(+1, 0, 1) != 1 {
		t.Errorf("Clamp: +1 should be [0, 1]")
	}

	if Clamp(0, 0, 1) != 0 {
		t.Errorf("Clamp: 0 should be [0, 1]")
	}

	if Clamp(+2, 0, 1) != 1 {
		t.Errorf("Clamp: 2 was not cut")
	}
}

func TestSizeAcc(t *testing.T) {
	N := 20
	data := []byte("Hello World, how are you today?")

	sizeAcc := &SizeAccumulator{}
	buffers := []*bytes.Buffer{}

	for i := 0; i < N; i++ {
		buf := bytes.NewBuffer(data)
		buffers = append(buffers, buf)
	}

	wg := &sync.WaitGroup{}
	wg.Add(N)

	for i := 0; i < N; i++ {
		go func(buf *bytes.Buffer) {
			for j := 0; j < len(data); j++ {
				miniBuf := []byte{0}
				buf.Read(miniBuf)
				if _, err := sizeAcc.Write(miniBuf); err != nil {
					t.Errorf("write(sizeAcc, miniBuf) failed: %v", err)
				}
			}

			wg.Done()
		}(buffers[i])
	}

	wg.Wait()
	if int(sizeAcc.Size()) != N*len(data) {
		t.Errorf("SizeAccumulator: Sizes got dropped, race condition?")
		t.Errorf(
			"Should be %v x %v = %v; was %v",
			len(data), N, len(data)*N, sizeAcc.Size(),
		)
	}
}

func ExampleSizeAccumulator() {
	s := &SizeAccumulator{}
	teeR := io.TeeReader(bytes.NewReader([]byte("Hello, ")), s)
	io.Copy(os.Stdout, teeR)
	fmt.Printf("wrote %d bytes to stdout\n", s.Size())
	// Output: Hello, wrote 7 bytes to stdout
}
