package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"recorridos/internal/core"
)

func (c *Client) ListNinos(ctx context.Context) ([]core.Nino, error) {
	var out []core.Nino
	if err := c.do(ctx, http.MethodGet, "/ninos", nil, nil, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) GetNino(ctx context.Context, id int64) (core.Nino, error) {
	var out core.Nino
	if err := c.do(ctx, http.MethodGet, idPath("/ninos", id), nil, nil, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) CreateNino(ctx context.Context, n core.Nino) (core.Nino, error) {
	var out core.Nino
	if err := c.do(ctx, http.MethodPost, "/ninos", nil, n, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) UpdateNino(ctx context.Context, n core.Nino) (core.Nino, error) {
	var out core.Nino
	if err := c.do(ctx, http.MethodPut, idPath("/ninos", n.ID), nil, n, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) DeleteNino(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/ninos", id), nil, nil, nil)
}

func (c *Client) ListVehiculos(ctx context.Context) ([]core.Vehiculo, error) {
	var out []core.Vehiculo
	if err := c.do(ctx, http.MethodGet, "/vehiculos", nil, nil, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) GetVehiculo(ctx context.Context, id int64) (core.Vehiculo, error) {
	var out core.Vehiculo
	if err := c.do(ctx, http.MethodGet, idPath("/vehiculos", id), nil, nil, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) CreateVehiculo(ctx context.Context, v core.Vehiculo) (core.Vehiculo, error) {
	var out core.Vehiculo
	if err := c.do(ctx, http.MethodPost, "/vehiculos", nil, v, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) UpdateVehiculo(ctx context.Context, v core.Vehiculo) (core.Vehiculo, error) {
	var out core.Vehiculo
	if err := c.do(ctx, http.MethodPut, idPath("/vehiculos", v.ID), nil, v, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) DeleteVehiculo(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/vehiculos", id), nil, nil, nil)
}

func (c *Client) ListRecorridos(ctx context.Context) ([]core.Recorrido, error) {
	var out []core.Recorrido
	if err := c.do(ctx, http.MethodGet, "/recorridos", nil, nil, &out); err != nil {
		return out, err
	}
	return out, nil
}

// ListRecorridosByMonth asks the API to filter by mes/anio. The answer is
// not trusted to be exact; callers aggregate it again.
func (c *Client) ListRecorridosByMonth(ctx context.Context, year, month int) ([]core.Recorrido, error) {
	q := url.Values{}
	q.Set("mes", strconv.Itoa(month))
	q.Set("anio", strconv.Itoa(year))
	var out []core.Recorrido
	if err := c.do(ctx, http.MethodGet, "/recorridos", q, nil, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) GetRecorrido(ctx context.Context, id int64) (core.Recorrido, error) {
	var out core.Recorrido
	if err := c.do(ctx, http.MethodGet, idPath("/recorridos", id), nil, nil, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) CreateRecorrido(ctx context.Context, r core.Recorrido) (core.Recorrido, error) {
	var out core.Recorrido
	if err := c.do(ctx, http.MethodPost, "/recorridos", nil, r, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) UpdateRecorrido(ctx context.Context, r core.Recorrido) (core.Recorrido, error) {
	var out core.Recorrido
	if err := c.do(ctx, http.MethodPut, idPath("/recorridos", r.ID), nil, r, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) DeleteRecorrido(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/recorridos", id), nil, nil, nil)
}

func (c *Client) ListUsuarios(ctx context.Context) ([]core.Usuario, error) {
	var out []core.Usuario
	if err := c.do(ctx, http.MethodGet, "/usuarios", nil, nil, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) GetUsuario(ctx context.Context, id int64) (core.Usuario, error) {
	var out core.Usuario
	if err := c.do(ctx, http.MethodGet, idPath("/usuarios", id), nil, nil, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) CreateUsuario(ctx context.Context, in core.UsuarioInput) (core.Usuario, error) {
	var out core.Usuario
	if err := c.do(ctx, http.MethodPost, "/usuarios", nil, in, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) UpdateUsuario(ctx context.Context, id int64, in core.UsuarioInput) (core.Usuario, error) {
	var out core.Usuario
	if err := c.do(ctx, http.MethodPut, idPath("/usuarios", id), nil, in, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) DeleteUsuario(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/usuarios", id), nil, nil, nil)
}
