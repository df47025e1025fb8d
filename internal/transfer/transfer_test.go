package transfer

import (
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestHeaderMessage_ReadBack(t *testing.T) {
	h := Header{ID: "abc", Name: "cat.png", MediaType: "image/png", Size: 1536, Fingerprint: "ff00"}

	m, err := HeaderMessage(h)
	require.NoError(t, err)

	got, err := ReadHeader(m)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(h, got))
}

func TestReadHeader_RejectsChunk(t *testing.T) {
	m, err := ChunkMessage([]byte("data"))
	require.NoError(t, err)

	_, err = ReadHeader(m)
	require.ErrorIs(t, err, ErrMissingHeader)

	b, err := ReadChunk(m)
	require.NoError(t, err)
	require.Equal(t, []byte("data"), b)
}

func TestReadChunk_RejectsOtherTypes(t *testing.T) {
	m, err := anypb.New(wrapperspb.String("nope"))
	require.NoError(t, err)

	_, err = ReadChunk(m)
	require.Error(t, err)
}

func TestResult_ReadBack(t *testing.T) {
	r := Result{ID: "abc", Name: "cat.png", MediaType: "image/png", Size: 42}

	s, err := r.Struct()
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(r, ResultFromStruct(s)))
}

type fakeStream struct {
	msgs []*anypb.Any
}

func (f *fakeStream) Recv() (*anypb.Any, error) {
	if len(f.msgs) == 0 {
		return nil, io.EOF
	}
	m := f.msgs[0]
	f.msgs = f.msgs[1:]
	return m, nil
}

func TestReader_ConcatenatesChunks(t *testing.T) {
	stream := &fakeStream{}
	for _, part := range []string{"hel", "", "lo ", "world"} {
		m, err := ChunkMessage([]byte(part))
		require.NoError(t, err)
		stream.msgs = append(stream.msgs, m)
	}

	got, err := io.ReadAll(NewReader(stream))
	require.NoError(t, err)
	require.Equal(t, "hello world", string(got))
}

func TestReader_RejectsHeaderMidStream(t *testing.T) {
	h, err := HeaderMessage(Header{ID: "x"})
	require.NoError(t, err)

	_, err = io.ReadAll(NewReader(&fakeStream{msgs: []*anypb.Any{h}}))
	require.Error(t, err)
}
